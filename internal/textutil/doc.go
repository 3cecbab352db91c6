// Package textutil provides text helpers for turning clip titles into safe
// file names.
package textutil
