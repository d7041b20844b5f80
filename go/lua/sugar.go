package lua

// helpers installed as globals for hook modules and the console
var sugarRc = `
getmetatable("").__mod = func(a, b)
    if type(b) == 'table' then
        return string.format(a, unpack(b))
    end
    return string.format(a, b)
end

func hex(s) return '%x' % s end

func brk(addr) sheepbug.add_bp(sheepbug.BP_EXEC, addr) end
func watch(addr) sheepbug.add_bp(sheepbug.BP_WRITE, addr) end
func rwatch(addr) sheepbug.add_bp(sheepbug.BP_READ, addr) end

func breakpoints()
    for _, kind in ipairs({sheepbug.BP_READ, sheepbug.BP_WRITE, sheepbug.BP_EXEC}) do
        for _, addr in ipairs(sheepbug.list_bp(kind)) do
            print('%d 0x%x' % {kind, addr})
        end
    end
end

func hexdump(addr, size)
    if size == nil then size = 16 end
    local line = ''
    for i = 0, size - 1 do
        if i % 16 == 0 then
            if i > 0 then print(line) end
            line = '%08x:' % (addr + i)
        end
        line = line .. ' %02x' % sheepbug.read_byte(addr + i)
    end
    print(line)
end
`
