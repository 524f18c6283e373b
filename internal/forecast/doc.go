// Package forecast predicts the next months of revenue and order volume.
//
// Each month is described by its calendar position, the holiday impact of
// the Brazilian retail calendar and the three previous months of revenue
// and orders. Features are standardized on the training split and fed to
// two bagged forests of CART regression trees, one per target. Months
// beyond the first use earlier predictions as their lags, and the 95%
// interval is the prediction plus or minus 1.96 residual standard
// deviations measured on the held out split.
package forecast
