// Command rulec compiles rule engine documents into resolved rule groups.
//
// Usage:
//
//	# Check rule documents without registering anything
//	rulec lint --file rules/orders.yaml
//	rulec lint --dir rules/ --scripts scripts/ --format json
//
//	# Compile documents into an in-memory registry and print a summary
//	rulec compile --dir rules/
//
//	# Compile, hot reload and poll a remote document as a service
//	rulec run --config rulec.yaml
//
//	# Show version information
//	rulec version
package main

func main() {
	Execute()
}
