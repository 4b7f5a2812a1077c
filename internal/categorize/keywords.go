package categorize

// Package-name prefixes per bucket. Matching is case-insensitive.
var (
	AndroidPrefixes = []string{"com.google.android", "com.android", "android"}

	GooglePrefixes = []string{"com.google"}

	FacebookPrefixes = []string{
		"com.facebook",
		"com.facebook.katana",
		"com.facebook.orca",
		"com.facebook.mlite",
		"com.facebook.services",
		"com.facebook.system",
		"com.facebook.appmanager",
	}

	TikTokPrefixes = []string{
		"com.zhiliaoapp",
		"com.ss.android.ugc.trill",
		"com.ss.android.ugc.aweme",
		"com.bytedance",
	}

	TwitterPrefixes = []string{"com.twitter", "com.x.android"}

	InstagramPrefixes = []string{"com.instagram"}

	ParlerPrefixes = []string{"com.parler"}

	RedditPrefixes = []string{"com.reddit"}
)

// Vendor keyword groups. The bare names match packages that use a vendor
// name as their first label; the qualified forms catch the usual
// "com.<vendor>" layout.
var (
	manufacturerKeywords = []string{
		"motorola", "samsung", "google", "lenovo", "huawei", "xiaomi", "oneplus",
		"oppo", "vivo", "lg", "htc", "sony", "realme", "nokia", "asus", "zte",
		"infinix", "tecno", "alcatel",
	}
	hardwareKeywords = []string{
		"qualcomm", "mediatek", "broadcom", "nvidia", "intel", "amd", "qti",
		"arm", "hisilicon",
		"com.qualcomm", "com.qti", "com.mediatek", "vendor.qti",
	}
	carrierKeywords = []string{
		"att", "verizon", "tmobile", "cricket", "tracfone", "uscellular",
		"spectrum", "metropcs", "vodafone", "telstra", "orange", "jio",
		"telekom", "boost", "xfinitymobile", "rogers", "bell", "telenor",
		"aura", "dish", "mobily",
		"com.att.", "com.verizon", "com.vzw", "com.tmobile", "com.t-mobile",
		"com.dish", "com.vodafone",
	}
	promotionKeywords = []string{
		"aura", "ironsrc", "inmobi", "glance.lockscreen",
		"handmark.expressweather", "appland", "fyber",
		"com.ironsource", "com.aura", "com.inmobi", "com.glance",
		"com.handmark.expressweather", "com.digitalturbine",
	}
)

// VendorPrefixes is every OEM, hardware, carrier and ad-preload keyword.
var VendorPrefixes = concat(manufacturerKeywords, hardwareKeywords, carrierKeywords, promotionKeywords)

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
