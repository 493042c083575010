// Package harness runs conformance scenarios against the deal compiler.
//
// A scenario names a deal description file and asserts on what the
// compiler makes of it: the shape of the IR, or the error it reports.
//
// # Scenario Format
//
//	name: demo_waterfall
//	description: "What this scenario validates"
//	source: ../deals/demo.cue    # relative to the scenario file
//	deal: demo                   # optional, defaults to the first deal
//	assumption: stress           # optional, passed to the validator
//	assertions:
//	  - type: waterfall_order
//	    phase: "DistributionDay Amortizing"
//	    actions: [CalcFee, PayFee, PayInt]
//	  - type: path_equals
//	    path: contents>bonds>A1>bndType
//	    value: {tag: Sequential}
//	  - type: key_absent
//	    path: contents>rateSwap
//	  - type: entity_count
//	    entity: bonds
//	    count: 2
//	  - type: compile_error
//	    kind: E101
//	    contains: "fortnightly"
//	  - type: validation_error
//	    kind: E201
//	    count: 0
//
// Unknown keys are rejected when the file is loaded.
//
// # Assertion Types
//
//   - waterfall_order: step tags of a phase appear in order, gaps allowed
//   - path_equals: the node at path equals value in canonical form
//   - key_absent: nothing exists at path
//   - entity_count: a named-entity section holds count entries
//   - compile_error: compilation failed with the kind (name or code) and
//     message fragment
//   - validation_error: the validator reported the code, at least once or
//     exactly count times
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory archive whose record ids come from
// testutil.SequentialIDs. The compiled deal is archived and read back, and
// the snapshot used for golden files is canonical JSON, so repeated runs
// are byte-identical.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/demo_waterfall.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
