// Package schema checks flow graphs for structural mistakes before they are
// served.
//
// The interpreter tolerates malformed graphs (dangling edges are skipped,
// empty texts render a placeholder). ValidateFlow reports those same
// problems up front so an operator can fix them:
//
//	if err := schema.ValidateFlow(flow); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
//
// Node payloads are checked with go-playground/validator rules registered
// per payload type; graph-level rules (ids, edges, handles, callback data)
// are checked directly.
package schema
