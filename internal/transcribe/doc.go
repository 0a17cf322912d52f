// Package transcribe turns radio recordings into text.
//
// WhisperX runs the whisperx CLI through uvx and reads its JSON segments.
// Decoder converts recordings to 16 kHz mono WAV with ffmpeg. Fallback wraps
// an engine and retries a recording under several path variants, returning
// the first non-empty transcript.
package transcribe
