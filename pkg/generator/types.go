package generator

// Options は CaptionService の挙動を調整します。
type Options struct {
	// SplitOptions が true のとき、生成結果を "Option" マーカーで分割して Caption.Options に格納します。
	SplitOptions bool
}
