// Package manifest implements atomic manifest persistence for saved models.
//
// # Overview
//
// A manifest is a snapshot of a model: its identity, the engine limits, the
// classifier table and the knowledge pack blob holding each classifier's
// patterns. Manifests are YAML documents so they can be read and edited by
// hand.
//
// # Atomic Protocol
//
// Save follows a two-phase protocol:
//
//  1. Write the manifest blob to MANIFEST-NNNNNN.yaml (N is the version ID)
//  2. Atomically replace the CURRENT pointer blob with that name
//
// Pack blobs referenced by a manifest must be written before step 1.
// Load reads CURRENT to find the active manifest, then loads that blob.
//
// # Thread Safety
//
// All Store methods are protected by a mutex and safe for concurrent use.
package manifest
