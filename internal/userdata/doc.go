// Package userdata resolves where things live on disk for each install scope:
// the root directory components are installed under, the ledger file that
// tracks them, and the cache used for cloned sources.
package userdata
