// Package harness runs pagination scenarios against an IncrementalView.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scroll_to_end
//	description: "Scrolling near the bottom fetches the next page"
//	page_size: 100
//	threshold: 300
//	columns: [name]
//	pages:
//	  - cursor: ""            # answers the first request
//	    generate: { prefix: r, count: 100 }
//	    next_cursor: c1
//	    has_more: true
//	  - cursor: c1
//	    records:
//	      - id: x
//	        fields: { name: X }
//	steps:
//	  - load: true
//	  - deliver: {}
//	  - scroll: { offset: 9650, viewport: 300, content: 10000 }
//	  - deliver: {}
//	assertions:
//	  - type: fetch_count
//	    count: 2
//	  - type: cursor
//	    has_more: false
//
// Requests issued by the view stay pending until a deliver step answers
// them from the scripted pages, so a scenario controls exactly when each
// completion arrives. With synchronous: true every request is answered
// inside the requester instead.
//
// # Assertion Types
//
//   - fetch_count: number of requests issued
//   - collection_len: number of records held
//   - ids: record ids in collection order
//   - cursor: token, has_more and fetching (each optional)
//   - empty: the view model's empty-state signal
//   - error: code of the last error, "" for none
//   - stat: a named diagnostic counter
//   - trace_count: number of trace events of a type
//
// # Deterministic Testing
//
// Sequence numbers start at 1 and the session id is fixed, so the same
// scenario always produces the same trace for golden comparison.
package harness
