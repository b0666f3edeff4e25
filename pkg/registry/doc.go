// Package registry implements a client for using a version-control hosting
// repository as a lightweight model registry.
//
// Models live under a configurable root path with one directory per model:
//
//	<root>/<model>/
//	  versions.json         JSON array of version-id strings
//	  backtest.csv          time-indexed predictions tagged by version
//	  <version>/
//	    model               serialized model artifact
//	    <other artifacts>
//
// Transport is delegated to a RemoteStore collaborator and model
// serialization to a Serializer; the client itself is a set of
// path-addressing and local-staging steps around them, plus the backtest
// merge in LogModelBacktest.
//
// The client keeps no state between calls and performs no locking. Writers
// to the same model from the same working directory race on deterministic
// staging paths, and the backtest merge is a read-modify-write against
// remote state; callers needing safe concurrent writes must serialize
// access themselves.
package registry
