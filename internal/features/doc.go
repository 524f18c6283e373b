// Package features derives the master analytical datasets from a cleaned
// table set: enhanced orders with delivery and calendar features, RFM
// customer scoring with CLV, product performance, city and state market
// opportunity, seasonal trends and the payment operations join.
//
// Currency sums go through shopspring/decimal. Every binning helper and
// decision table is exported so it can be tested on its own.
package features
