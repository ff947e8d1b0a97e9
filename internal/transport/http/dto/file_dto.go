package dto

type FileUploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}
