// Package drivetest provides an in-memory Drive object store for tests.
//
// Store implements the same method set as *drive.Client (List, Get, Create,
// Update, Delete, Download, Export). It evaluates the Drive query dialect
// produced by package query, counts calls per operation, and can inject
// failures for individual objects.
package drivetest
