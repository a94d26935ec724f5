// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing messages, histories and scripted
// participants. It only depends on core so any package can use it without
// import cycles. Not intended for production usage.
package testutil
