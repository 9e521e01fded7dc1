package imagecodec

import "errors"

// ErrCodec возвращается, когда payload повреждён или не может быть обработан.
// Вызывающий код трактует такую запись как "без изображения".
var ErrCodec = errors.New("image codec error")
