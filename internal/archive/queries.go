package archive

const (
	saveDocumentQuery = `
		MERGE (d:Document {uuid: $uuid})
		SET d.name = $name,
			d.created_at = $created_at,
			d.chunk_count = $chunk_count
		RETURN d.uuid AS uuid
	`

	saveRecordQuery = `
		MATCH (d:Document {uuid: $document_uuid})
		MERGE (r:Record {uuid: $uuid})
		SET r.created_at = $created_at,
			r.fields = $fields,
			r.issues = $issues
		MERGE (d)-[:DISTILLED_TO]->(r)
		RETURN r.uuid AS uuid
	`

	saveFieldValueQuery = `
		MATCH (r:Record {uuid: $record_uuid})
		CREATE (f:FieldValue {
			record_uuid: $record_uuid,
			name: $name,
			value: $value,
			source_chunks: $source_chunks,
			confidences: $confidences
		})
		CREATE (r)-[:HAS_FIELD]->(f)
		RETURN f.name AS name
	`
)
