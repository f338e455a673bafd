package checker

import (
	"regexp"
	"strings"
)

var npmOwnerPattern = regexp.MustCompile(`"npm owner add bluefox iobroker\.([-_a-z\d]+)"`)

// Decorate adds markdown links and code spans to a checker message.
// It is applied to raw checker output only, never to parsed keys.
func Decorate(text, owner, repo string) string {
	link := "https://github.com/" + owner + "/" + repo

	text = npmOwnerPattern.ReplaceAllString(text, "`npm owner add bluefox iobroker.$1`")
	text = strings.Replace(text, `"Manage topics"`, "`Manage topics`", 1)
	text = strings.Replace(text, `"## License"`, "`## License`", 1)
	text = strings.ReplaceAll(text, "travis", "[travis](https://travis-ci.com/)")
	text = strings.Replace(text, "Travis-ci.org", "[Travis-ci.com](https://travis-ci.com/"+owner+"/"+repo+")", 1)
	text = strings.ReplaceAll(text, " README.md", " [README.md]("+link+"/blob/master/README.md)")
	text = strings.ReplaceAll(text, " io-package.json", " [io-package.json]("+link+"/blob/master/io-package.json)")
	text = strings.ReplaceAll(text, " package.json", " [package.json]("+link+"/blob/master/package.json)")
	text = strings.ReplaceAll(text, " node_modules", " [node_modules]("+link+"/tree/master/node_modules)")
	text = strings.ReplaceAll(text, " NPM", " [NPM](https://www.npmjs.com/package/"+strings.ToLower(repo)+")")
	text = strings.Replace(text, `"iob_npm.done"`, `"[iob_npm.done](`+link+`/blob/master/iob_npm.done)"`, 1)
	text = strings.Replace(text, " admin/words.js", " [admin/words.js]("+link+"/blob/master/admin/words.js)", 1)
	text = strings.Replace(text, " main.js", " [main.js]("+link+"/blob/master/main.js)", 1)
	return text
}
