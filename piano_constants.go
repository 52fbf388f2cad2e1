// piano_constants.go - Shared constants for the piano engine

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

const (
	SAMPLE_RATE     = 48000 // Output rate in Hz, mono
	SAMPLE_BITS     = 16    // Signed PCM
	SAMPLE_CHANNELS = 1
	BUFFER_SAMPLES  = 4096 // Device buffer hint (~85ms at 48kHz)

	MIN_SAMPLE_RATE = 8000
	MAX_SAMPLE_RATE = 192000
)

const (
	SINE_AMPLITUDE = 32000 // Peak sample value, leaves clipping headroom
)

const (
	NUM_KEYS              = 12  // Semitones per octave
	REFERENCE_KEY         = 49  // Piano key number of A4
	REFERENCE_PITCH       = 440 // Hz
	DEFAULT_OCTAVE_OFFSET = 40  // Key index 0 -> key 40 (C4)
	OCTAVE                = 12
)

const (
	WAV_HEADER_SIZE     = 44
	WAV_FMT_CHUNK_SIZE  = 16
	WAV_FORMAT_PCM      = 1
	WAV_RIFF_SIZE_BASE  = 36 // Header bytes after the RIFF size field, excluding data
	WAV_RIFF_SIZE_OFF   = 4
	WAV_DATA_SIZE_OFF   = 40
	WAV_MAX_DATA_SIZE   = 0xFFFFFFFF - WAV_RIFF_SIZE_BASE
	RECORD_FILE_PREFIX  = "recording-"
	RECORD_FILE_SUFFIX  = ".wav"
	RECORD_WRITE_BUFFER = 64 * 1024
)

const (
	DEFAULT_HOLD_MS = 300 // Terminal auto-release
)
