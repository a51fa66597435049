// Package pricing computes spot bid prices for a weighted set of instance
// types.
//
// On-demand prices come from the public EC2 bulk offer file and are kept in a
// [Catalog], which can be cached on disk between runs. Spot market history is
// read through a [HistorySource]. The [Advisor] combines both under one of two
// policies:
//
//   - automatic: bid the on-demand price per capacity unit
//   - cost-minimizing: bid an inflated percentile of recent spot prices,
//     capped at the on-demand price per unit
//
// All prices are USD per hour, rounded to six decimals.
package pricing
