// Package deps reports whether the external programs an encode job needs are
// installed. ffmpeg is required; muxers are optional and only reported.
package deps
