// Package result reshapes an engine run response into typed tables.
//
// The engine answers a run request with a JSON array whose first element
// is the deal after projection and whose fourth, when present, is the
// pricing map. Each entity of the deal carries a statement: a list of
// tagged transactions whose contents are positional columns. Reshape reads
// those statements with one typed walk per entity kind, keeps every number
// as an exact decimal, and aggregates fee and account rows per date.
//
//	res, err := result.Reshape(body)
//	tbl, err := result.Join(res.Bonds)
//
// Tables are plain data; rendering belongs to the caller.
package result
