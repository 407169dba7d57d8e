// Package random provides blocking and non-blocking cryptographic random
// generators that combine several independent entropy sources.
//
// The SlowEngine draws from every configured source for each output block,
// whitens the raw bytes with one or more hash functions per source and XORs
// the results. As long as one source delivers good entropy, the output is
// good. The FastEngine stretches output of a SlowEngine with a deterministic
// generator and reseeds it regularly.
//
// For most uses, the package level functions Read, Bytes and Number, which
// use a shared FastEngine, are what you want.
package random
