// ABOUTME: Version constants reported over the control protocol and admin surfaces
package version

// Version is the server/probe build version.
const Version = "0.1.0"

// Product is the human-readable product name advertised over mDNS and the
// admin UI.
const Product = "SyncJam"

// Manufacturer identifies the implementation for client display purposes.
const Manufacturer = "SyncJam Project"
