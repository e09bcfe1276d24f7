package w3g

import "fmt"

// Stage names the part of the decode pipeline that produced an error.
type Stage string

const (
	StageHeader   Stage = "header"
	StageBlocks   Stage = "blocks"
	StagePlayers  Stage = "players"
	StageSettings Stage = "settings"
	StageSlots    Stage = "slots"
	StageRecords  Stage = "records"
	StageActions  Stage = "actions"
)

// ParseError is the base error type for parsing errors.
type ParseError struct {
	Stage   Stage
	Message string
	Offset  *int
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = string(e.Stage) + ": " + msg
	}
	if e.Offset != nil {
		return fmt.Sprintf("%s at offset 0x%X", msg, *e.Offset)
	}
	return msg
}

// InvalidHeaderError indicates invalid or unrecognized header format.
type InvalidHeaderError struct {
	ParseError
}

// DecompressionError indicates a data block failed to inflate.
// It is delivered to Diagnostics; the decode itself stops reading blocks.
type DecompressionError struct {
	ParseError
	Block int
	Err   error
}

func (e *DecompressionError) Unwrap() error { return e.Err }

// ChecksumError indicates a block checksum mismatch (strict mode only).
type ChecksumError struct {
	ParseError
	Block    int
	Expected uint16
	Actual   uint16
}

// TruncatedDataError indicates a read ran past the end of the buffer.
type TruncatedDataError struct {
	ParseError
	Op   string
	Need int
	Have int
}

// UnexpectedRecordError indicates a required record tag was not found.
type UnexpectedRecordError struct {
	ParseError
	Expected uint8
	Got      uint8
}

// Helper functions for creating errors

func newInvalidHeaderError(msg string) *InvalidHeaderError {
	return &InvalidHeaderError{ParseError{Stage: StageHeader, Message: msg}}
}

func newDecompressionError(block int, offset int, err error) *DecompressionError {
	return &DecompressionError{
		ParseError: ParseError{
			Stage:   StageBlocks,
			Message: fmt.Sprintf("block %d decompression failed: %v", block, err),
			Offset:  &offset,
		},
		Block: block,
		Err:   err,
	}
}

func newChecksumError(block int, what string, expected, actual uint16, offset int) *ChecksumError {
	return &ChecksumError{
		ParseError: ParseError{
			Stage:   StageBlocks,
			Message: fmt.Sprintf("block %d %s checksum mismatch: stored 0x%04X, computed 0x%04X", block, what, expected, actual),
			Offset:  &offset,
		},
		Block:    block,
		Expected: expected,
		Actual:   actual,
	}
}

func newTruncatedDataError(stage Stage, op string, offset, need, have int) *TruncatedDataError {
	return &TruncatedDataError{
		ParseError: ParseError{
			Stage:   stage,
			Message: fmt.Sprintf("%s: need %d bytes, %d available", op, need, have),
			Offset:  &offset,
		},
		Op:   op,
		Need: need,
		Have: have,
	}
}

func newUnexpectedRecordError(stage Stage, expected, got uint8, offset int) *UnexpectedRecordError {
	return &UnexpectedRecordError{
		ParseError: ParseError{
			Stage:   stage,
			Message: fmt.Sprintf("expected record 0x%02X, got 0x%02X", expected, got),
			Offset:  &offset,
		},
		Expected: expected,
		Got:      got,
	}
}
