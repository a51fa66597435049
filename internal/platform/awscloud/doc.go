// Package awscloud wraps the EC2 API behind the small set of operations a
// spot cluster needs.
//
// [Provider] is the capability set consumed by the provisioning phases.
// [RealClient] implements it on aws-sdk-go-v2; [MockClient] implements it
// with overridable function fields for tests. Every SDK failure is returned
// as a [ProviderCallError]; [IsNotFound] classifies missing-resource errors
// so teardown can treat them as already removed. Throttled calls are retried
// with exponential backoff.
package awscloud
