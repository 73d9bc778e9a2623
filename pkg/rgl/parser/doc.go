// Package parser builds rule group entities from rule engine documents.
//
// Rule groups live under the fixed key path "ruleengine.groups":
//
//	ruleengine:
//	  groups:
//	    - name: orders
//	      project: shop
//	      defaultRule: fallback
//	      rules:
//	        - name: big-order
//	          when:
//	            - source: order.total
//	              operation: gt
//	              target: "1000"
//	          then:
//	            - type: expr
//	              action: facts.order.total * 0.1
//
// Build never fails. Whether the resulting entities are acceptable is
// decided by the validator.
package parser
