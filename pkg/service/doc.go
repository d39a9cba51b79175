// Package service holds the business rules of BoardGuru.
//
// Every operation takes the acting identity, checks it against the
// organization and vault policies in package authz, works through the store
// interfaces and reports failures as *apperr.Error values. Mutations are
// audited and announced to connected clients through a realtime.Publisher.
package service
