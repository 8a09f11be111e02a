// Package harness runs YAML search scenarios against an in-memory engine
// and checks their outcomes.
//
// # Scenario Format
//
//	name: person_lookup
//	description: "What this scenario validates"
//	definitions: people.cue        # CUE file or directory, relative to the scenario
//	fallback_prefix: tbl_          # optional
//	query_shape: false             # optional
//	flow:
//	  - search: Person
//	    request:
//	      where: { like: { name: an } }
//	    expect:
//	      body: '[{"id":1,"name":"Ann","email":"a@x.com"}]'
//	  - patch: { table: Person, key: id, value: 2, values: { email: bo@x.com } }
//	    expect:
//	      affected: 1
//	  - search: nobody
//	    request: { projection: [id] }
//	    expect:
//	      error: not_found
//	assertions:
//	  - type: statement_count
//	    count: 1
//	  - type: final_state
//	    entity: Person
//	    where: { id: 2 }
//	    expect: { email: bo@x.com }
//
// # Assertion Types
//
//   - statement_count: the engine received exactly count update statements
//   - final_state: every record of entity matching where carries the expected
//     values once the flow has run
//
// Every scenario starts from the records in its definitions, so runs are
// isolated and reproducible, which is what golden transcripts rely on.
package harness
