package pcloud

import (
	"errors"
	"fmt"
	"time"
)

// timeLayout is the date format the API uses in JSON bodies, e.g.
// "Thu, 21 Mar 2019 05:31:25 +0000".
const timeLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// Timestamp is a time.Time that (un)marshals using the API's date
// format instead of RFC 3339.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}

	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("pcloud: timestamp %s is not a JSON string", s)
	}

	parsed, err := time.Parse(timeLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("pcloud: parsing timestamp: %w", err)
	}

	t.Time = parsed

	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(timeLayout) + `"`), nil
}

// Metadata describes one remote file or folder. Folder listings nest
// child entries under Contents; recursive listings nest further.
type Metadata struct {
	// ID is the prefixed identifier the API uses in event streams,
	// "d0" for folder 0 or "f100" for file 100.
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Created        Timestamp `json:"created"`
	Modified       Timestamp `json:"modified"`
	Icon           string    `json:"icon"`
	IsFolder       bool      `json:"isfolder"`
	IsMine         bool      `json:"ismine"`
	IsShared       bool      `json:"isshared"`
	Thumb          bool      `json:"thumb"`
	Comments       uint64    `json:"comments"`
	ParentFolderID uint64    `json:"parentfolderid"`

	// Folder fields.
	FolderID uint64     `json:"folderid,omitempty"`
	Contents []Metadata `json:"contents,omitempty"`

	// File fields.
	FileID      uint64 `json:"fileid,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Hash        uint64 `json:"hash,omitempty"`
	ContentType string `json:"contenttype,omitempty"`
	Category    int    `json:"category,omitempty"`

	// Trash fields, populated when listing with deleted entries.
	IsDeleted     bool   `json:"isdeleted,omitempty"`
	DeletedFileID uint64 `json:"deletedfileid,omitempty"`
}

// Stat is the metadata envelope returned by stat, listfolder, and the
// file and folder mutation endpoints. Metadata's fields are promoted,
// so st.Name and st.Metadata.Name are the same field.
type Stat struct {
	resultEnvelope
	Metadata `json:"metadata"`
}

// DownloadLink is returned by getfilelink, getziplink and
// getpublinkdownload. Path must be joined with one of Hosts to form a
// fetchable URL; links expire server-side.
type DownloadLink struct {
	resultEnvelope
	Path    string    `json:"path"`
	Expires Timestamp `json:"expires"`
	Hosts   []string  `json:"hosts"`
}

// URL assembles the download URL from the first listed host.
func (l *DownloadLink) URL() (string, error) {
	if len(l.Hosts) == 0 {
		return "", errors.New("pcloud: download link has no hosts")
	}

	return "https://" + l.Hosts[0] + l.Path, nil
}

// PublicLink describes a shareable link created by getfilepublink.
type PublicLink struct {
	resultEnvelope
	LinkID    uint64    `json:"linkid"`
	Link      string    `json:"link"`
	Code      string    `json:"code"`
	ShortCode string    `json:"shortcode,omitempty"`
	ShortLink string    `json:"shortlink,omitempty"`
	Expires   Timestamp `json:"expires"`
	Downloads uint64    `json:"downloads"`
	Traffic   uint64    `json:"traffic"`
	Metadata  Metadata  `json:"metadata"`
}

// UploadResult lists the files created by an upload. FileIDs and
// Metadata are index-aligned with the uploaded parts.
type UploadResult struct {
	resultEnvelope
	FileIDs  []uint64   `json:"fileids"`
	Metadata []Metadata `json:"metadata"`
}

// DeleteResult reports what a recursive folder delete removed.
type DeleteResult struct {
	resultEnvelope
	DeletedFiles   uint64 `json:"deletedfiles"`
	DeletedFolders uint64 `json:"deletedfolders"`
}

// Checksums holds the server-computed digests of a file revision. US
// servers return SHA-1 and MD5, European servers SHA-1 and SHA-256, so
// only SHA1 is always present.
type Checksums struct {
	resultEnvelope
	SHA1     string   `json:"sha1"`
	MD5      string   `json:"md5,omitempty"`
	SHA256   string   `json:"sha256,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Revision is one saved revision of a file.
type Revision struct {
	RevisionID uint64    `json:"revisionid"`
	Size       int64     `json:"size"`
	Hash       uint64    `json:"hash"`
	Created    Timestamp `json:"created"`
}

// RevisionList is the listrevisions response.
type RevisionList struct {
	resultEnvelope
	Metadata  Metadata   `json:"metadata"`
	Revisions []Revision `json:"revisions"`
}

// DiffEvent identifies the kind of change a diff entry describes.
type DiffEvent string

// Diff event types. A reset entry means prior state must be discarded
// and the listing rebuilt from scratch.
const (
	EventReset            DiffEvent = "reset"
	EventCreateFolder     DiffEvent = "createfolder"
	EventDeleteFolder     DiffEvent = "deletefolder"
	EventModifyFolder     DiffEvent = "modifyfolder"
	EventCreateFile       DiffEvent = "createfile"
	EventModifyFile       DiffEvent = "modifyfile"
	EventDeleteFile       DiffEvent = "deletefile"
	EventRequestShareIn   DiffEvent = "requestsharein"
	EventAcceptedShareIn  DiffEvent = "acceptedsharein"
	EventDeclinedShareIn  DiffEvent = "declinedsharein"
	EventDeclinedShareOut DiffEvent = "declinedshareout"
	EventCancelledShareIn DiffEvent = "cancelledsharein"
	EventRemovedShareIn   DiffEvent = "removedsharein"
	EventModifiedShareIn  DiffEvent = "modifiedsharein"
)

// DiffEntry is one event in the account change feed. Metadata is set
// for file and folder events, Share for sharing events.
type DiffEntry struct {
	Event    DiffEvent `json:"event"`
	Time     Timestamp `json:"time"`
	DiffID   uint64    `json:"diffid"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Share    *Share    `json:"share,omitempty"`
}

// Diff is one page of the account change feed. DiffID is the cursor to
// pass back to receive only newer events.
type Diff struct {
	resultEnvelope
	DiffID  uint64      `json:"diffid"`
	Entries []DiffEntry `json:"entries"`
}

// FileHistory is the event list of a single file.
type FileHistory struct {
	resultEnvelope
	Entries []DiffEntry `json:"entries"`
}

// Share describes an incoming or outgoing folder share.
type Share struct {
	FolderID       uint64    `json:"folderid"`
	ShareID        uint64    `json:"shareid,omitempty"`
	ShareRequestID uint64    `json:"sharerequestid,omitempty"`
	ShareName      string    `json:"sharename"`
	FromUserID     uint64    `json:"fromuserid,omitempty"`
	ToUserID       uint64    `json:"touserid,omitempty"`
	FromMail       string    `json:"frommail,omitempty"`
	ToMail         string    `json:"tomail,omitempty"`
	Message        string    `json:"message,omitempty"`
	CanRead        bool      `json:"canread"`
	CanCreate      bool      `json:"cancreate"`
	CanModify      bool      `json:"canmodify"`
	CanDelete      bool      `json:"candelete"`
	Created        Timestamp `json:"created"`
}

// UserInfo describes the authenticated account. Auth is populated only
// by the login call that requested a token.
type UserInfo struct {
	resultEnvelope
	Auth           string    `json:"auth,omitempty"`
	UserID         uint64    `json:"userid"`
	Email          string    `json:"email"`
	EmailVerified  bool      `json:"emailverified"`
	Registered     Timestamp `json:"registered"`
	Premium        bool      `json:"premium"`
	PremiumExpires Timestamp `json:"premiumexpires"`
	Quota          int64     `json:"quota"`
	UsedQuota      int64     `json:"usedquota"`
	Language       string    `json:"language,omitempty"`
}

// Wire-only responses.

type logoutResponse struct {
	resultEnvelope
	AuthDeleted bool `json:"auth_deleted"`
}

type apiServersResponse struct {
	resultEnvelope
	BinAPI []string `json:"binapi"`
	API    []string `json:"api"`
}

type fileOpenResponse struct {
	resultEnvelope
	FD     uint64 `json:"fd"`
	FileID uint64 `json:"fileid"`
}

type fileWriteResponse struct {
	resultEnvelope
	Bytes uint64 `json:"bytes"`
}

type fileCloseResponse struct {
	resultEnvelope
}
