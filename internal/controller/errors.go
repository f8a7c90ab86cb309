package controller

import "errors"

// ErrNotConnected is returned by Client operations that require an active
// session join.
var ErrNotConnected = errors.New("controller: client is not connected")

// ErrHashMismatch names the case of a peer's reported hash disagreeing with
// this controller's own trailing hash at the same frame. No Client or Server
// method returns it: a Client logs and counts the mismatch and invalidates
// its TSS instead.
var ErrHashMismatch = errors.New("controller: hash mismatch detected")

// ErrSnapshotHashMismatch is returned when a decoded GameStateResponse's
// declared hash doesn't match the hash of the snapshot it carries.
var ErrSnapshotHashMismatch = errors.New("controller: snapshot hash does not match declared hash")
