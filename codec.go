package tabvault

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Object framing follows the classic content-addressed layout:
//
//	"{kind} {size}\x00{payload}" → SHA256
//
// The id of an object is the hash of its framed bytes, so identical
// payloads of the same kind share an id everywhere.

// frameObject wraps a payload with its kind header and returns the framed
// bytes together with their id.
func frameObject(kind ObjectKind, payload []byte) (ObjectID, []byte) {
	header := fmt.Sprintf("%s %d\x00", kind, len(payload))
	buf := make([]byte, len(header)+len(payload))
	copy(buf, header)
	copy(buf[len(header):], payload)
	return ComputeObjectID(buf), buf
}

// decodeObject splits framed bytes into kind and payload.
func decodeObject(data []byte) (ObjectKind, []byte, error) {
	idx := bytes.IndexByte(data, 0)
	if idx == -1 {
		return KindInvalid, nil, fmt.Errorf("invalid object: missing null terminator")
	}

	header := string(data[:idx])
	name, _, ok := strings.Cut(header, " ")
	if !ok {
		return KindInvalid, nil, fmt.Errorf("invalid object header %q", header)
	}

	kind := kindFromHeader(name)
	if kind == KindInvalid {
		return KindInvalid, nil, fmt.Errorf("unknown object kind %q", name)
	}

	return kind, data[idx+1:], nil
}

// Tree payload format, entries sorted by name:
//
//	{kind:1byte}{id:32bytes}{nameLen:2bytes}{name}...
//
// Sorted storage gives every tree a single canonical encoding and fixes
// the sibling order observed by traversal.

func encodeTreeEntries(entries []TreeEntry) []byte {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for _, entry := range sorted {
		buf.WriteByte(byte(entry.Kind))
		buf.Write(entry.ID[:])
		binary.Write(&buf, binary.BigEndian, uint16(len(entry.Name)))
		buf.WriteString(entry.Name)
	}
	return buf.Bytes()
}

func decodeTreeEntries(data []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	reader := bytes.NewReader(data)

	for reader.Len() > 0 {
		var entry TreeEntry

		kind, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		entry.Kind = ObjectKind(kind)
		if entry.Kind < KindBlob || entry.Kind > KindTag {
			return nil, fmt.Errorf("invalid tree entry kind %d", kind)
		}

		if _, err := io.ReadFull(reader, entry.ID[:]); err != nil {
			return nil, err
		}

		var nameLen uint16
		if err := binary.Read(reader, binary.BigEndian, &nameLen); err != nil {
			return nil, err
		}

		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(reader, nameBuf); err != nil {
			return nil, err
		}
		entry.Name = string(nameBuf)
		entry.Path = entry.Name

		entries = append(entries, entry)
	}

	return entries, nil
}

// Commit payload format:
//
//	{treeID:32bytes}{parentCount:2bytes}{parentID:32bytes}...
//	{authorLen:2bytes}{author}{messageLen:4bytes}{message}{unixTime:8bytes}

func encodeCommit(c *Commit) []byte {
	var buf bytes.Buffer
	buf.Write(c.TreeID[:])
	binary.Write(&buf, binary.BigEndian, uint16(len(c.Parents)))
	for _, p := range c.Parents {
		buf.Write(p[:])
	}
	binary.Write(&buf, binary.BigEndian, uint16(len(c.Author)))
	buf.WriteString(c.Author)
	binary.Write(&buf, binary.BigEndian, uint32(len(c.Message)))
	buf.WriteString(c.Message)
	binary.Write(&buf, binary.BigEndian, c.Time.Unix())
	return buf.Bytes()
}

func decodeCommit(data []byte) (*Commit, error) {
	reader := bytes.NewReader(data)
	c := &Commit{}

	if _, err := io.ReadFull(reader, c.TreeID[:]); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}

	var parentCount uint16
	if err := binary.Read(reader, binary.BigEndian, &parentCount); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	for range parentCount {
		var p ObjectID
		if _, err := io.ReadFull(reader, p[:]); err != nil {
			return nil, fmt.Errorf("invalid commit: %w", err)
		}
		c.Parents = append(c.Parents, p)
	}

	var authorLen uint16
	if err := binary.Read(reader, binary.BigEndian, &authorLen); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	author := make([]byte, authorLen)
	if _, err := io.ReadFull(reader, author); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	c.Author = string(author)

	var messageLen uint32
	if err := binary.Read(reader, binary.BigEndian, &messageLen); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	message := make([]byte, messageLen)
	if _, err := io.ReadFull(reader, message); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	c.Message = string(message)

	var unix int64
	if err := binary.Read(reader, binary.BigEndian, &unix); err != nil {
		return nil, fmt.Errorf("invalid commit: %w", err)
	}
	c.Time = time.Unix(unix, 0).UTC()

	return c, nil
}
