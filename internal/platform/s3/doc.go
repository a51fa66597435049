// Package s3 provides a small object client used to keep cluster records in
// an S3 bucket.
//
// Credentials come from the default AWS chain. A custom endpoint can be set
// for S3-compatible stores.
package s3
