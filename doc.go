// Package kbin reads and writes the KBin binary XML format and its XML
// text form, as spoken between arcade cabinets and their network
// services. Trees decoded from either form compare equal and can be
// written back in the framing they arrived in.
//
// The package also carries a small service client for moving trees
// between services over a pluggable Transport.
package kbin
