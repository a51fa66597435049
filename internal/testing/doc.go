// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating valid test configurations
//   - FakeCloud: Stateful in-memory awscloud.Provider that enforces EC2
//     dependency rules (a VPC with subnets cannot be deleted, and so on)
//   - MemoryStore and MockStore: record.Store implementations
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithClusterName("test").
//	    WithFleet(8, "c4.large", "c4.xlarge").
//	    Build()
//
//	cloud := testing.NewFakeCloud("us-east-1")
package testing
