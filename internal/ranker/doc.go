// Package ranker scores how well a fuzzy query matches a file basename.
//
// A query matches a candidate when its characters appear in the candidate in
// order, not necessarily contiguously. Every matched character is worth one
// point, or two when it lands on a word start. Word starts are the first
// character of the string, the character following a '_' or '.', and an
// uppercase character following a non-uppercase one:
//
//	render_widget_host -> r, w, h
//	WebViewImpl        -> W, V, I
//
// Candidates made of more than two words earn an extra bonus proportional to
// the fraction of their words that the query touched, so "rwh" ranks
// render_widget_host.cc above a file that merely contains those letters.
//
// Ranks are floored to one decimal place which keeps equal matches comparable
// and makes result ordering deterministic. Case folding is ASCII only.
package ranker
