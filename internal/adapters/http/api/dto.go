package api

import "github.com/okian/gwrank/internal/domain/model"

// entryJSON is one history row as shown in search and info results.
type entryJSON struct {
	GWNum  int    `json:"gw_num"`
	IsSeed bool   `json:"is_seed"`
	Name   string `json:"name"`
	Rank   int    `json:"rank"`
	Points *int64 `json:"points"`
}

type guildJSON struct {
	ID   int64       `json:"id"`
	Data []entryJSON `json:"data"`
}

type searchResponse struct {
	Result []guildJSON `json:"result"`
}

type boardEntryJSON struct {
	Name   string `json:"name"`
	Rank   int    `json:"rank"`
	Points *int64 `json:"points"`
	ID     int64  `json:"id"`
}

type boardJSON struct {
	Seed    []boardEntryJSON `json:"seed"`
	Regular []boardEntryJSON `json:"regular"`
}

type fullResponse struct {
	Num  int       `json:"num"`
	Data boardJSON `json:"data"`
}

type rangeResponse struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type uploadResponse struct {
	Status   string `json:"status"`
	BatchID  string `json:"batch_id"`
	EventNum int    `json:"event_num"`
	Rows     int    `json:"rows"`
	Snapshot string `json:"snapshot,omitempty"`
}

func toEntries(rows []model.Entry) []entryJSON {
	out := make([]entryJSON, 0, len(rows))
	for _, e := range rows {
		out = append(out, entryJSON{GWNum: e.EventNum, IsSeed: e.IsSeed, Name: e.Name, Rank: e.Rank, Points: e.Points})
	}
	return out
}

func toGuild(id int64, rows []model.Entry) guildJSON {
	return guildJSON{ID: id, Data: toEntries(rows)}
}

func toBoardEntries(rows []model.Entry) []boardEntryJSON {
	out := make([]boardEntryJSON, 0, len(rows))
	for _, e := range rows {
		out = append(out, boardEntryJSON{Name: e.Name, Rank: e.Rank, Points: e.Points, ID: e.GuildID})
	}
	return out
}
