// Package crm defines the record types the application is built around.
//
// Every record a user works with — contacts, leads, deals, accounts,
// email templates, per-user preferences, and the activity feed — is a
// plain struct here, with JSON and BSON tags for the API and storage
// layers. The package holds the business rules that belong to the data
// itself (validation, lead conversion, deal stage transitions) and
// nothing else: no storage, no HTTP, no sessions.
//
// # Records
//
//   - [Contact]: a person attached to an account
//   - [Lead]: an unqualified prospect, convertible into a contact
//   - [Deal]: a revenue opportunity moving through pipeline stages
//   - [Account]: a company records hang off
//   - [EmailTemplate]: reusable outbound email with merge fields
//   - [Preferences]: per-user settings including the dashboard layout
//   - [Activity]: one entry of the change feed
//
// # Identity and Ownership
//
// Record IDs are UUID strings assigned by the New* constructors. Every
// record carries an OwnerID scoping it to the user who created it; the
// storage layer filters on it, this package only carries it.
//
// # Lifecycle Rules
//
// Leads convert at most once ([Lead.Convert]); deal stages move freely
// between open stages but closed deals must be reopened before changing
// outcome ([DealStage.CanTransition]). Validation is deliberately
// shallow — shape and enum checks, no cross-record lookups.
package crm
