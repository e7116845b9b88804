package mcpserver

// UsageContract describes how records behave, for LLM consumers that create
// or update them through the tools.
const UsageContract = `# flatrest Usage Contract

Every resource is a JSON array of objects stored in one file. Each object is a record.

## Records

1. **Records are JSON objects.** Arrays, strings and numbers are rejected.
2. **` + "`" + `id` + "`" + ` is assigned by the server** on create and is never changed by update.
   Any ` + "`" + `id` + "`" + ` you send is ignored.
3. **Ids are compared as text**, so ` + "`" + `"3"` + "`" + ` finds the record whose id is the number 3.
4. **Update replaces every field** except ` + "`" + `id` + "`" + `. Send the whole record, not a patch.
5. **Field order is kept** as sent, with ` + "`" + `id` + "`" + ` first.

## Validation

- When a resource has a schema (see ` + "`" + `get_schema` + "`" + `), create must satisfy it fully.
- Update ignores the schema's top-level ` + "`" + `required` + "`" + ` list, but types, formats and
  patterns still apply to the fields present.
- Schemas of the form ` + "`" + `additionalProperties: false` + "`" + ` reject unknown fields.
- A resource without a schema accepts any object.

## Pagination

` + "`" + `list_records` + "`" + ` returns ` + "`" + `{"data": [...], "metadata": {...}}` + "`" + `. ` + "`" + `page` + "`" + ` defaults to 1,
` + "`" + `per_page` + "`" + ` to 10 and is capped at 100. ` + "`" + `next_page` + "`" + ` and ` + "`" + `prev_page` + "`" + ` are null at the ends.

## Example

` + "```" + `json
{"name": "Thermostat", "type": "sensor", "location_id": 1}
` + "```" + `

Creating this record in ` + "`" + `devices` + "`" + ` on an empty resource returns it with ` + "`" + `"id": 1` + "`" + `.
`
