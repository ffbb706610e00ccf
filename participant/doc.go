// Package participant defines the people who share an expense, the palette
// used to tag them, and the JSON snapshot they are persisted as.
//
// A snapshot is a JSON array in registry order:
//
//	[{"key":"ptc_...","name":"Ana","amount":150,"color":"#FFB6C1"}]
package participant
