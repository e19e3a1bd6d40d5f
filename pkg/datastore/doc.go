// Package datastore defines the contract the host supplies to the validator
// for longitudinal checks: fetching a participant's most recent prior visit
// (optionally restricted to visits where given fields are non-empty) and
// validating external reference codes (RXCUI drug codes, center ids).
//
// The engine treats any error from a Datastore as a system failure for the
// record under validation: it aborts the record and surfaces the failure
// separately from validation findings.
//
// Memory is the bundled in-memory implementation used by tests and the
// reference CLI. Real deployments use the pgstore, mongostore or rediscache
// subpackages, or bring their own implementation.
package datastore
