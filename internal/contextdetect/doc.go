// Package contextdetect maps the free text of a mix upload to known cultural
// contexts (publishers, festivals, radio shows) and an optional venue.
//
// Detection is a pure function over the input text and a small knowledge
// base. It never fails: internal errors and panics produce an empty result.
package contextdetect
