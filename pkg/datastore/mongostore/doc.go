// Package mongostore implements the datastore contract on MongoDB: one
// document per visit keyed by participant, RXCUI codes and center ids in
// their own collections. Previous-visit selection runs through
// datastore.SelectPrevious so order-field semantics match the other
// backends.
package mongostore
