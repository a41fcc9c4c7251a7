// Package pcloud provides a client for the pCloud HTTP API with typed
// result codes, descriptor-based file and folder addressing, and a
// session lifecycle with exactly-once server-side revocation.
package pcloud

import (
	"errors"
	"fmt"
)

// Result is the numeric status code embedded in the body of every API
// response. The zero value means success. Result implements error so
// callers can match codes with errors.Is(err, pcloud.ResultFileNotFound).
type Result int

// The documented pCloud result codes. 1xxx codes indicate a malformed
// request, 2xxx a rejected operation, 4xxx throttling, 5xxx a server
// fault.
const (
	ResultOk                                    Result = 0
	ResultLoginRequired                         Result = 1000
	ResultNoFullPathOrNameOrFolderIDProvided    Result = 1001
	ResultNoFullPathOrFolderIDProvided          Result = 1002
	ResultNoFileIDOrPathProvided                Result = 1004
	ResultInvalidFileDescriptor                 Result = 1007
	ResultDateTimeFormatNotUnderstood           Result = 1013
	ResultNoToPathOrToNameAndToFolderIDProvided Result = 1016
	ResultInvalidFolderID                       Result = 1017
	ResultInvalidFileID                         Result = 1018
	ResultNoToPathOrToFolderIDOrToNameProvided  Result = 1037
	ResultProvideURL                            Result = 1040
	ResultLoginFailed                           Result = 2000
	ResultInvalidFileOrFolderName               Result = 2001
	ResultParentDirectoryDoesNotExist           Result = 2002
	ResultAccessDenied                          Result = 2003
	ResultDirectoryDoesNotExist                 Result = 2005
	ResultFolderNotEmpty                        Result = 2006
	ResultCannotDeleteRootFolder                Result = 2007
	ResultUserOverQuota                         Result = 2008
	ResultFileNotFound                          Result = 2009
	ResultInvalidPath                           Result = 2010
	ResultMailVerificationRequired              Result = 2014
	ResultSharedFolderIntoShare                 Result = 2023
	ResultNotYourFileOrFolder                   Result = 2026
	ResultFolderHasActiveShares                 Result = 2028
	ResultConnectionBroken                      Result = 2041
	ResultCannotRenameRootFolder                Result = 2042
	ResultCannotMoveFolderIntoItself            Result = 2043
	ResultTooManyLogins                         Result = 4000
	ResultInternalError                         Result = 5000
	ResultInternalUploadError                   Result = 5001
	ResultWriteError                            Result = 5003
)

// message returns the documented description for known codes.
func (r Result) message() string {
	switch r {
	case ResultOk:
		return "ok"
	case ResultLoginRequired:
		return "log in required"
	case ResultNoFullPathOrNameOrFolderIDProvided:
		return "no full path or name/folderid provided"
	case ResultNoFullPathOrFolderIDProvided:
		return "no full path or folderid provided"
	case ResultNoFileIDOrPathProvided:
		return "no fileid or path provided"
	case ResultInvalidFileDescriptor:
		return "invalid or closed file descriptor"
	case ResultDateTimeFormatNotUnderstood:
		return "date/time format not understood"
	case ResultNoToPathOrToNameAndToFolderIDProvided:
		return "no full topath or toname/tofolderid provided"
	case ResultInvalidFolderID:
		return "invalid folderid"
	case ResultInvalidFileID:
		return "invalid fileid"
	case ResultNoToPathOrToFolderIDOrToNameProvided:
		return "provide at least topath, tofolderid or toname"
	case ResultProvideURL:
		return "provide url"
	case ResultLoginFailed:
		return "log in failed"
	case ResultInvalidFileOrFolderName:
		return "invalid file or folder name"
	case ResultParentDirectoryDoesNotExist:
		return "a component of the parent directory does not exist"
	case ResultAccessDenied:
		return "access denied"
	case ResultDirectoryDoesNotExist:
		return "directory does not exist"
	case ResultFolderNotEmpty:
		return "folder is not empty"
	case ResultCannotDeleteRootFolder:
		return "cannot delete the root folder"
	case ResultUserOverQuota:
		return "user is over quota"
	case ResultFileNotFound:
		return "file not found"
	case ResultInvalidPath:
		return "invalid path"
	case ResultMailVerificationRequired:
		return "verify your mail address to perform this action"
	case ResultSharedFolderIntoShare:
		return "cannot place a shared folder into another shared folder"
	case ResultNotYourFileOrFolder:
		return "you can only share your own files or folders"
	case ResultFolderHasActiveShares:
		return "active shares or share requests exist for this folder"
	case ResultConnectionBroken:
		return "connection broken"
	case ResultCannotRenameRootFolder:
		return "cannot rename the root folder"
	case ResultCannotMoveFolderIntoItself:
		return "cannot move a folder into a subfolder of itself"
	case ResultTooManyLogins:
		return "too many login attempts from this IP address"
	case ResultInternalError:
		return "internal error, try again later"
	case ResultInternalUploadError:
		return "internal upload error"
	case ResultWriteError:
		return "write error, try reuploading"
	default:
		return "unrecognized result code"
	}
}

// Error makes Result usable as an errors.Is target. Unknown codes keep
// their raw numeric value in the message.
func (r Result) Error() string {
	return fmt.Sprintf("%s (result %d)", r.message(), int(r))
}

// Error is returned for any API response carrying a non-zero result
// code. It records which endpoint produced the code and the server's
// error text when one was present. Unwrap exposes the Result so
// errors.Is(err, pcloud.ResultAccessDenied) matches.
type Error struct {
	Code     Result
	Endpoint string // API method name, e.g. "listfolder"
	Message  string // server-provided error text, may be empty
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pcloud: %s: %s (result %d)", e.Endpoint, e.Message, int(e.Code))
	}

	return fmt.Sprintf("pcloud: %s: %v", e.Endpoint, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Code
}

// ErrUnexpectedStatus reports a non-2xx HTTP response received before
// the body could be interpreted as an API result. Transport failures
// are distinct from API result codes.
var ErrUnexpectedStatus = errors.New("pcloud: unexpected HTTP status")

// resultEnvelope is embedded in every wire response struct. Exactly one
// result field per response; the optional error field carries the
// server's human-readable message.
type resultEnvelope struct {
	Result Result `json:"result"`
	Error  string `json:"error,omitempty"`
}

// ensure normalizes the embedded result code: code zero passes the
// payload through untouched, any other code becomes an *Error carrying
// the code and endpoint.
func (r resultEnvelope) ensure(endpoint string) error {
	if r.Result == ResultOk {
		return nil
	}

	return &Error{Code: r.Result, Endpoint: endpoint, Message: r.Error}
}

// apiResult is satisfied by every wire response struct via the embedded
// resultEnvelope.
type apiResult interface {
	ensure(endpoint string) error
}
