// Package rediscache decorates any Datastore with a Redis cache over the
// external code lookups (RXCUI drug codes, center ids). Those checks hit
// slowly changing reference data, often behind a remote service, and the
// same codes repeat across records in a batch; a day of TTL removes almost
// all of that traffic. Visit-history fetches are never cached.
package rediscache
