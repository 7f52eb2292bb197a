// Package advice implements the heuristic sensor adjustment rule used when
// the language model gives no usable structured recommendation. It owns the
// static reference range table and the min/max comparison that decides
// whether a reading should be increased, decreased or maintained.
package advice
