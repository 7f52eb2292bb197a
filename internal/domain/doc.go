// Package domain contains the core business entities, value objects, and
// domain logic of the agro advisory service: the incoming query, the model
// answer returned to callers, the sensor adjustment recommendation and the
// history records kept for each conversation. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
