package model

type ImportRecord struct {
	ID            int64  `json:"id"`
	ImportTime    int64  `json:"import_time"`
	FilePath      string `json:"file_path"`
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
	Chunks        int    `json:"chunks"`
}
