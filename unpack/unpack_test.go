package unpack

import (
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const packerBody = `eval(function(p,a,c,k,e,d){e=function(c){return(c<a?'':e(parseInt(c/a)))+((c=c%a)>35?String.fromCharCode(c+29):c.toString(36))};if(!''.replace(/^/,String)){while(c--){d[e(c)]=k[c]||e(c)}k=[function(e){return d[e]}];e=function(){return'\\w+'};c=1};while(c--){if(k[c]){p=p.replace(new RegExp('\\b'+e(c)+'\\b','g'),k[c])}}return p}`

// pack produces the packed form of source the way hoster pages ship it.
func pack(source string, radix int) string {
	var (
		words   []string
		index   = map[string]int{}
		payload strings.Builder
	)

	flush := func(word string) {
		if word == "" {
			return
		}
		i, ok := index[word]
		if !ok {
			i = len(words)
			index[word] = i
			words = append(words, word)
		}
		payload.WriteString(encode(i, radix))
	}

	start := -1
	for i := 0; i < len(source); i++ {
		if isWordByte(source[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(source[start:i])
			start = -1
		}
		payload.WriteByte(source[i])
	}
	if start >= 0 {
		flush(source[start:])
	}

	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(payload.String())

	return packerBody + "('" + escaped + "'," +
		strconv.Itoa(radix) + "," + strconv.Itoa(len(words)) + ",'" +
		strings.Join(words, "|") + "'.split('|'),0,{}))"
}

func TestUnpack(t *testing.T) {
	Convey("Given a packed player setup", t, func() {
		source := `jwplayer("vplayer").setup({sources:[{file:"https://cdn.example.com/hls/abc/master.m3u8"}],image:'https://cdn.example.com/poster.jpg'});`

		Convey("When it is packed with radix 36", func() {
			packed := `<script>` + pack(source, 36) + `</script>`

			Convey("Then it is detected and decoded back to the original", func() {
				So(Detect(packed), ShouldBeTrue)

				out, ok := Unpack(packed)
				So(ok, ShouldBeTrue)
				So(out, ShouldEqual, source)
			})
		})

		Convey("When it is packed with radix 62", func() {
			out, ok := Unpack(pack(source, 62))

			Convey("Then it round-trips", func() {
				So(ok, ShouldBeTrue)
				So(out, ShouldEqual, source)
			})
		})

		Convey("When the source has more words than the radix", func() {
			var b strings.Builder
			for i := 0; i < 50; i++ {
				b.WriteString("w" + strconv.Itoa(i) + "=" + strconv.Itoa(i*7) + ";")
			}
			long := b.String()

			out, ok := Unpack(pack(long, 10))

			Convey("Then multi-digit tokens decode intact", func() {
				So(ok, ShouldBeTrue)
				So(out, ShouldEqual, long)
			})
		})
	})

	Convey("Given overlapping tokens", t, func() {
		packed := packerBody + `('1+10=11',10,12,'|x|||||||||y|z'.split('|'),0,{}))`

		Convey("Then a short token never rewrites part of a longer one", func() {
			out, ok := Unpack(packed)
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, "x+y=z")
		})
	})

	Convey("Given a dictionary word that looks like a lower token", t, func() {
		packed := packerBody + `('1 0',36,2,'a|0'.split('|'),0,{}))`

		Convey("Then the substituted word is not rescanned", func() {
			out, ok := Unpack(packed)
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, "0 a")
		})
	})

	Convey("Given empty dictionary entries", t, func() {
		packed := packerBody + `('0 1 2',36,3,'zero||two'.split('|'),0,{}))`

		Convey("Then those tokens stay as they are", func() {
			out, ok := Unpack(packed)
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, "zero 1 two")
		})
	})

	Convey("Given a count far beyond the dictionary", t, func() {
		packed := packerBody + `('0 1 zz',36,2000000000,'a|b'.split('|'),0,{}))`

		Convey("Then only the dictionary words are substituted", func() {
			out, ok := Unpack(packed)
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, "a b zz")
		})
	})

	Convey("Given a count shorter than the dictionary", t, func() {
		packed := packerBody + `('0 1',36,1,'a|b'.split('|'),0,{}))`

		Convey("Then words past the count are ignored", func() {
			out, ok := Unpack(packed)
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, "a 1")
		})
	})

	Convey("Given a payload with escaped quotes", t, func() {
		packed := packerBody + `('0(\'1\')',36,2,'alert|hi'.split('|'),0,{}))`

		Convey("Then the delimiter escapes are honored", func() {
			out, ok := Unpack(packed)
			So(ok, ShouldBeTrue)
			So(out, ShouldEqual, "alert('hi')")
		})
	})

	Convey("Given malformed input", t, func() {
		Convey("Plain text is not packed", func() {
			So(Detect("var a = 1;"), ShouldBeFalse)
			_, ok := Unpack("var a = 1;")
			So(ok, ShouldBeFalse)
		})

		Convey("A truncated call fails", func() {
			full := pack("a.b('c')", 36)
			_, ok := Unpack(full[:len(full)-3])
			So(ok, ShouldBeFalse)
		})

		Convey("A missing split tail fails", func() {
			_, ok := Unpack(packerBody + `('0',36,1,'a'),0,{}))`)
			So(ok, ShouldBeFalse)
		})

		Convey("A non-numeric radix fails", func() {
			_, ok := Unpack(packerBody + `('0',x,1,'a'.split('|'),0,{}))`)
			So(ok, ShouldBeFalse)
		})

		Convey("A radix beyond 62 fails", func() {
			_, ok := Unpack(packerBody + `('0',95,1,'a'.split('|'),0,{}))`)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a page with two packed scripts", t, func() {
		page := pack(`var a="first";`, 36) + "\n" + pack(`var b="second";`, 36)

		Convey("Then UnpackAll decodes both in order", func() {
			So(UnpackAll(page), ShouldResemble, []string{`var a="first";`, `var b="second";`})
		})
	})
}

func TestEncode(t *testing.T) {
	Convey("encode uses the 0-9a-zA-Z alphabet", t, func() {
		So(encode(0, 36), ShouldEqual, "0")
		So(encode(35, 36), ShouldEqual, "z")
		So(encode(36, 62), ShouldEqual, "A")
		So(encode(61, 62), ShouldEqual, "Z")
		So(encode(62, 62), ShouldEqual, "10")
		So(encode(10, 10), ShouldEqual, "10")
	})
}
