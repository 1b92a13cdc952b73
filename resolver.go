package main

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"
)

// entity is the canonical shape every upvotable object resolves to
type entity struct {
	Name       string
	Operator   string // owning operator address; empty means unusable
	StorageKey string
	Author     string
}

// notFoundError reports a lookup miss; the identifier needs correcting
type notFoundError struct {
	kind string
	id   string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

// libraryItem is the subset of a catalog item the resolver reads. The
// catalog is loose about field names, so alternates are kept side by side.
type libraryItem struct {
	Title           string `json:"title"`
	Name            string `json:"name"`
	Operator        string `json:"operator"`
	OperatorAddress string `json:"operatorAddress"`
	Author          string `json:"author"`
	Uploader        struct {
		Username string `json:"username"`
	} `json:"uploader"`
	UploaderUsername string `json:"uploaderUsername"`
	Upvotes          int    `json:"upvotes"`
}

type libraryResponse struct {
	Items   []libraryItem `json:"items"`
	Results []libraryItem `json:"results"`
}

type stackInfo struct {
	Name          string `json:"name"`
	Owner         string `json:"owner"`
	OwnerUsername string `json:"ownerUsername"`
	Upvotes       int    `json:"upvotes"`
}

type stacksResponse struct {
	Stacks []stackInfo `json:"stacks"`
}

// resolveEntity dispatches to the per-type resolver
func resolveEntity(entityType, identifier string) (entity, error) {
	switch entityType {
	case "item":
		return resolveItem(identifier)
	case "stack":
		return resolveStack(identifier)
	case "grid":
		return resolveGrid(identifier)
	case "member":
		return resolveMember(identifier)
	}
	return entity{}, fmt.Errorf("unknown entity type: %s", entityType)
}

// resolveItem looks up a library item by content key
func resolveItem(contentKey string) (entity, error) {
	var data libraryResponse
	query := url.Values{"contentKey": {contentKey}}
	if err := apiGet("/library", query, false, &data); err != nil {
		return entity{}, err
	}

	items := data.Items
	if len(items) == 0 {
		items = data.Results
	}
	if len(items) == 0 {
		return entity{}, &notFoundError{kind: "item", id: contentKey}
	}

	item := items[0]
	name := item.Title
	if name == "" {
		name = item.Name
	}
	if name == "" {
		name = contentKey
	}
	operator := item.Operator
	if operator == "" {
		operator = item.OperatorAddress
	}
	author := item.Author
	if author == "" {
		author = item.Uploader.Username
	}
	return entity{Name: name, Operator: operator, StorageKey: contentKey, Author: author}, nil
}

// resolveStack looks up a stack by id
func resolveStack(stackID string) (entity, error) {
	var data stacksResponse
	query := url.Values{"id": {stackID}}
	if err := apiGet("/stacks", query, false, &data); err != nil {
		return entity{}, err
	}
	if len(data.Stacks) == 0 {
		return entity{}, &notFoundError{kind: "stack", id: stackID}
	}

	stack := data.Stacks[0]
	name := stack.Name
	if name == "" {
		name = stackID
	}
	author := stack.OwnerUsername
	if author == "" {
		author = stack.Owner
	}
	return entity{Name: name, Operator: stack.Owner, StorageKey: stackID, Author: author}, nil
}

// resolveGrid always fails: the catalog has no grid lookup yet, so grids
// require a manually obtained key and transaction hash
func resolveGrid(gridID string) (entity, error) {
	return entity{}, fmt.Errorf("grid lookup not yet available via API. Use: netlibrary upvote grid <gridId> --tx-hash <hash> to upvote a grid directly after sending the tx manually")
}

// fetchMemberRegistry downloads and parses the member registry CSV
// snapshot into header-keyed rows
func fetchMemberRegistry() ([]map[string]string, error) {
	csvText, err := apiGetRaw("/member-registry/csv", false, true)
	if err != nil {
		return nil, err
	}
	return parseMemberCSV(csvText)
}

// parseMemberCSV parses the registry snapshot. Quoted fields are handled
// by encoding/csv; short rows are tolerated.
func parseMemberCSV(csvText string) ([]map[string]string, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimSpace(csvText)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse member registry: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty member registry")
	}

	headers := records[0]
	members := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		members = append(members, row)
	}
	return members, nil
}

// resolveMember finds a member by address (case-insensitive), member id,
// or username in the registry snapshot
func resolveMember(identifier string) (entity, error) {
	members, err := fetchMemberRegistry()
	if err != nil {
		return entity{}, err
	}

	var match map[string]string
	if strings.HasPrefix(strings.ToLower(identifier), "0x") {
		for _, m := range members {
			if strings.EqualFold(m["address"], identifier) {
				match = m
				break
			}
		}
	} else {
		for _, m := range members {
			if m["member_id"] == identifier || m["username"] == identifier {
				match = m
				break
			}
		}
	}
	if match == nil {
		return entity{}, &notFoundError{kind: "member", id: identifier}
	}

	name := match["username"]
	if name == "" {
		name = match["ens_subname"]
	}
	if name == "" {
		name = identifier
	}
	return entity{
		Name:       name,
		Operator:   match["address"],
		StorageKey: match["address"],
		Author:     match["username"],
	}, nil
}
