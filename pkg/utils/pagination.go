package utils

// CalculateTotalPages membulatkan ke atas jumlah halaman untuk response
// pagination.
func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
