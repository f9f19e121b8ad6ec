// Package lmapio encodes and decodes the LMAP control and report
// models. One set of wire structs backs both the XML rendering
// (namespace urn:ietf:params:xml:ns:yang:ietf-lmap-control) and the
// JSON rendering (module-name member keys). Config documents carry only
// config-true leaves; state documents add the runtime leaves and the
// capability subtree.
package lmapio
