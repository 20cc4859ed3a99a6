// Package submission accepts consultation and quote requests from the public
// website. Each request is validated, persisted through a Repository and
// answered with 201 before the email notifications are sent in the background.
package submission
