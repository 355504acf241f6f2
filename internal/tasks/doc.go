// Package tasks implements the shuffle pipeline: fetch saved tracks, permute them and rewrite a playlist.
//
// [ShuffleEngine.Run] drives the pipeline against any [services.Library]:
//
//  1. [FetchSavedTracks] pages through the collection sequentially
//  2. [Shuffle] applies a uniform random permutation
//  3. [WritePlaylist] clears the playlist, then appends [Chunk]ed batches of at most 100 IDs in order
//
// Write calls are paced with a token bucket limiter from golang.org/x/time/rate.
// A failed write is logged and counted, never retried, and the run moves on to the next batch.
//
// # Progress
//
// Operations emit [ProgressUpdate] values on an optional channel.
// Sends never block: when the channel is full the update is dropped.
package tasks
