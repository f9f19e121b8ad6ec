// Package workspace owns the on-disk queue that carries measurement
// artefacts from producing Actions to consuming Schedules.
//
// Every Schedule has a directory under the queue root: regular files
// directly inside it form the processing queue, the _incoming
// subdirectory stages inbound artefacts, and one subdirectory per
// Action is that Action's private scratch space. Artefacts travel as
// <epoch>-<schedule>-<action>.data/.meta pairs and cross directory
// boundaries only via hardlinks, so a consumer never observes a
// half-written pair.
package workspace
